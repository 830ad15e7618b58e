// Package core provides shared constants and date helpers for trainsight.
package core

import "time"

// Date formats
const (
	DateFmt    = "2006-01-02" // vendor API dates
	KeyDateFmt = "20060102"   // cache key construction dates
	StampFmt   = "20060102_150405"
)

// Analysis defaults
const (
	DefaultAnalysisDays = 30
	DefaultOutputDir    = "analysis_reports"
)

// Cache defaults
const (
	DefaultCacheTTL       = 24 * time.Hour
	DefaultExtendedFactor = 7
	DefaultCacheMaxBytes  = 64 << 20 // 64 MiB
	DefaultCacheBusyWait  = 5 * time.Second
	DefaultCacheDirName   = ".trainsight"
	DefaultCacheFileName  = "trainsight_cache.db"
)

// Version is the current CLI version.
const Version = "1.0.0"
