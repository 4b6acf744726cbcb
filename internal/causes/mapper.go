// Package causes ranks weighted root-cause candidates and maps raw error
// identifiers onto a small set of operator-meaningful categories.
package causes

import (
	"regexp"
	"strconv"
	"strings"
)

// Operator-facing abstract cause categories. This set is closed: the mapper
// never invents new categories and never returns an empty one.
const (
	CauseInternalEngine = "Internal engine instability"
	CauseMemoryCorrupt  = "Memory corruption / process crash"
	CauseMemoryPressure = "Memory pressure (SGA/PGA)"
	CauseStorage        = "Storage / tablespace capacity exhaustion"
	CauseNetwork        = "Network / listener disruption"
	CauseReplication    = "Replication (Data Guard) instability"
	CauseArchiveLog     = "Archive log management issue"
	CauseTimeout        = "Connection timeout / network latency"
	CauseUndoRetention  = "Undo retention / snapshot too old"
	CauseInstanceDown   = "Database not available (instance down)"
	CauseGeneric        = "Database operational issue (requires investigation)"
)

// codeCauses maps exact error codes (without leading zeros) to categories.
var codeCauses = map[int]string{
	600:   CauseInternalEngine,
	7445:  CauseMemoryCorrupt,
	4030:  CauseMemoryPressure,
	4031:  CauseMemoryPressure,
	1652:  CauseStorage,
	1653:  CauseStorage,
	1654:  CauseStorage,
	19815: CauseStorage,
	12154: CauseNetwork,
	12170: CauseTimeout,
	12537: CauseNetwork,
	12541: CauseNetwork,
	16014: CauseReplication,
	16058: CauseReplication,
	1555:  CauseUndoRetention,
	1033:  CauseInstanceDown,
	1034:  CauseInstanceDown,
}

// tokenCauses maps issue-type and keyword tokens to categories; checked after
// explicit codes, before the numeric range heuristic.
var tokenCauses = []struct {
	token string
	cause string
}{
	{"INTERNAL", CauseInternalEngine},
	{"TNS", CauseNetwork},
	{"LISTENER", CauseNetwork},
	{"TABLESPACE", CauseStorage},
	{"STORAGE", CauseStorage},
	{"DISK", CauseStorage},
	{"MEMORY", CauseMemoryPressure},
	{"SGA", CauseMemoryPressure},
	{"PGA", CauseMemoryPressure},
	{"STANDBY", CauseReplication},
	{"GUARD", CauseReplication},
	{"DATAGUARD", CauseReplication},
	{"ARCHIVE", CauseArchiveLog},
	{"TIMEOUT", CauseTimeout},
	{"DOWN", CauseInstanceDown},
	{"UNAVAILABLE", CauseInstanceDown},
}

var codePattern = regexp.MustCompile(`(?i)ORA-?0*(\d+)`)

// AbstractCause maps a raw error identifier (code, issue type, or display
// cause) onto its operator-facing category. Falls through the code table,
// keyword tokens, and a numeric range heuristic; never returns empty.
func AbstractCause(errorType string) string {
	if errorType == "" {
		return CauseGeneric
	}
	upper := strings.ToUpper(strings.TrimSpace(errorType))

	if m := codePattern.FindStringSubmatch(upper); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			if cause, ok := codeCauses[code]; ok {
				return cause
			}
			if cause := causeForRange(code); cause != "" {
				return cause
			}
		}
	}

	for _, tc := range tokenCauses {
		if strings.Contains(upper, tc.token) {
			return tc.cause
		}
	}

	return CauseGeneric
}

// causeForRange is the numeric sub-code heuristic for codes outside the
// explicit table.
func causeForRange(code int) string {
	switch {
	case code >= 12150 && code <= 12699:
		return CauseNetwork
	case code >= 16000 && code <= 16999:
		return CauseReplication
	case code >= 1650 && code <= 1699:
		return CauseStorage
	case code >= 19800 && code <= 19999:
		return CauseStorage
	case code >= 4030 && code <= 4036:
		return CauseMemoryPressure
	case code == 600 || code == 700:
		return CauseInternalEngine
	}
	return ""
}
