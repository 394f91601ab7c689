package tei

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Info is a search progress line. Fields the engine did not send are zero.
// Parsing is lenient: unknown or malformed fields are skipped.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	HasScore bool
	Nodes    int64
	NPS      int64
	Time     time.Duration
	PV       []string
}

func parseInfo(fields []string) Info {
	var info Info
	var next = func(i int) string {
		if i+1 < len(fields) {
			return fields[i+1]
		}
		return ""
	}
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			info.Depth, _ = strconv.Atoi(next(i))
			i++
		case "seldepth":
			info.SelDepth, _ = strconv.Atoi(next(i))
			i++
		case "nodes":
			info.Nodes, _ = strconv.ParseInt(next(i), 10, 64)
			i++
		case "nps":
			info.NPS, _ = strconv.ParseInt(next(i), 10, 64)
			i++
		case "time":
			var ms, err = strconv.ParseInt(next(i), 10, 64)
			if err == nil {
				info.Time = time.Duration(ms) * time.Millisecond
			}
			i++
		case "score":
			if next(i) == "cp" && i+2 < len(fields) {
				var cp, err = strconv.Atoi(fields[i+2])
				if err == nil {
					info.Score, info.HasScore = cp, true
				}
				i += 2
			}
		case "pv":
			info.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	return info
}

func (info Info) String() string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", info.Depth)
	if info.SelDepth != 0 {
		fmt.Fprintf(sb, " seldepth %v", info.SelDepth)
	}
	if info.HasScore {
		fmt.Fprintf(sb, " score cp %v", info.Score)
	}
	var timeMs = info.Time.Milliseconds()
	var nps = info.NPS
	if nps == 0 {
		nps = info.Nodes * 1000 / (timeMs + 1)
	}
	fmt.Fprintf(sb, " nodes %v time %v nps %v", info.Nodes, timeMs, nps)
	if len(info.PV) != 0 {
		fmt.Fprintf(sb, " pv %v", strings.Join(info.PV, " "))
	}
	return sb.String()
}

// Summary formats the score as in game records, e.g. "+0.35/7 1.20s".
func (info Info) Summary(elapsed time.Duration) string {
	if !info.HasScore {
		return fmt.Sprintf("%.2fs", elapsed.Seconds())
	}
	var sign = ""
	if info.Score > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%v%.2f/%v %.2fs", sign, float64(info.Score)/100, info.Depth, elapsed.Seconds())
}
