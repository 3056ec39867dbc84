// Package paths defines the on-disk layout of recorded scans.
//
// The writer composes these names when it lands data and the inventory
// parses them when it reads the tree back, so the layout lives in one
// place.
//
// # Directory Structure
//
//	<root>/
//	  └── <experiment>_<source>_<scan>/
//	        ├── <start_second>_<leading_sample>.spec[.zst]
//	        ├── <start_second>_<leading_sample>_<sideband><polarization>.npow
//	        └── meta-data.json
//
// # Usage
//
//	import "github.com/GriffinCanCode/SpectraCore/internal/shared/paths"
//
//	dir := paths.ScanDir("ExpA", "SrcB", "ScanC")   // ExpA_SrcB_ScanC
//	name := paths.SpectrumFile(1700000000, 0, false) // 1700000000_0.spec
//
//	exp, src, scan := paths.SplitScanDir(dir)
package paths
