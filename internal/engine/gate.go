package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/shopdesk/internal/config"
)

// Gate decides whether the shop is closed at a given instant.
type Gate struct {
	loc    *time.Location
	closed map[time.Weekday]bool
	// open and close are minutes after midnight; window is false when the
	// shop is open all day on working days.
	open, close int
	window      bool
	allow       map[string]struct{}
}

// NewGate creates a gate closed on the given weekdays in loc, open all day otherwise.
func NewGate(loc *time.Location, closedDays ...time.Weekday) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	g := &Gate{loc: loc, closed: make(map[time.Weekday]bool), allow: closedAllowList}
	for _, d := range closedDays {
		g.closed[d] = true
	}
	return g
}

// WithWindow restricts working days to [open, close), both "HH:MM".
func (g *Gate) WithWindow(openAt, closeAt string) (*Gate, error) {
	o, err := config.ParseClock(openAt)
	if err != nil {
		return nil, err
	}
	c, err := config.ParseClock(closeAt)
	if err != nil {
		return nil, err
	}
	if o >= c {
		return nil, fmt.Errorf("opening time %s is not before closing time %s", openAt, closeAt)
	}
	g.open, g.close, g.window = o, c, true
	return g, nil
}

// NewGateFromConfig builds the gate described by the hours section.
func NewGateFromConfig(cfg config.HoursConfig) (*Gate, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = config.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", tz, err)
	}

	days := make([]time.Weekday, 0, len(cfg.ClosedDays))
	for _, name := range cfg.ClosedDays {
		d, err := config.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}

	g := NewGate(loc, days...)
	if cfg.Open != "" || cfg.Close != "" {
		return g.WithWindow(cfg.Open, cfg.Close)
	}
	return g, nil
}

// Closed reports whether the shop is closed at now.
func (g *Gate) Closed(now time.Time) bool {
	local := now.In(g.loc)
	if g.closed[local.Weekday()] {
		return true
	}
	if !g.window {
		return false
	}
	m := local.Hour()*60 + local.Minute()
	return m < g.open || m >= g.close
}

// Allows reports whether normalized text may run while the shop is closed.
func (g *Gate) Allows(norm string) bool {
	_, ok := g.allow[norm]
	return ok
}

// Describe renders the opening hours for customers.
func (g *Gate) Describe() string {
	var b strings.Builder
	if g.window {
		fmt.Fprintf(&b, "Open %s-%s", clock(g.open), clock(g.close))
	} else {
		b.WriteString("Open all day")
	}

	var closed []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if g.closed[d] {
			closed = append(closed, d.String())
		}
	}
	if len(closed) > 0 {
		fmt.Fprintf(&b, ", closed %s", strings.Join(closed, " and "))
	}
	fmt.Fprintf(&b, " (%s time)", g.loc)
	return b.String()
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
