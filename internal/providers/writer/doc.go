/*
Package writer persists averaged spectra and switching statistics to disk.

# Overview

A Writer consumes spectrum buffers from a ring pool and lands each one as a
binary .spec file, optionally zstd-compressed, with a companion .npow file
carrying the noise-power accumulations folded over the switching cycle.
Files are grouped into one directory per scan, named after the experiment,
source, and scan labels.

# Scan Lifecycle

BeginScan creates the scan directory and arms the writer; buffers that
arrive outside a scan are consumed and dropped so the pool never backs up.
EndScan waits for queued spectra to drain, writes a JSON summary beside the
data files, and reports what was written.
*/
package writer
