/*
Package transform turns raw sample buffers into averaged power spectra with
switched-noise calibration statistics.

# Overview

Spectrometer is the task body of the transform stage. Each task reserves
one source buffer, splits it into FFT-size segments, accumulates |X[k]|^2
across the segments, and publishes one sink buffer holding the averaged
power spectrum (FFTSize/2+1 real bins) plus per-half-cycle noise-diode
accumulations in the buffer metadata.

# Calibration accumulations

When a switching frequency is configured, the calibration source toggles
on and off each half period. Samples are folded into one accumulation per
half cycle (sum, sum of squares, count, begin and end sample index), with
samples inside the blanking window after each switch edge excluded so the
diode's settling transient never pollutes the statistics.

The FFT plan is not safe for concurrent use, so each task draws a private
workspace from a pool; the stage can run any number of workers.
*/
package transform
