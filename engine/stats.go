package engine

import (
	"fmt"
	"strings"

	"github.com/eddielth/fire-alarm/risk"
)

// Stats counts messages by outcome
type Stats struct {
	Received      int
	Decoded       int
	DecodeErrors  int
	UnknownKind   int
	PublishErrors int
	Dispatched    map[risk.Level]int
}

func newStats() Stats {
	return Stats{Dispatched: make(map[risk.Level]int)}
}

func (s Stats) clone() Stats {
	c := s
	c.Dispatched = make(map[risk.Level]int, len(s.Dispatched))
	for l, n := range s.Dispatched {
		c.Dispatched[l] = n
	}
	return c
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "received=%d decoded=%d decode_errors=%d unknown_kind=%d publish_errors=%d",
		s.Received, s.Decoded, s.DecodeErrors, s.UnknownKind, s.PublishErrors)
	for _, l := range []risk.Level{risk.Warning, risk.Alert, risk.Emergency, risk.Critical} {
		fmt.Fprintf(&b, " %s=%d", strings.ToLower(l.String()), s.Dispatched[l])
	}
	return b.String()
}
