package tutor

import (
	"strings"

	"github.com/sandevgo/tutord/internal/service/progress"
)

const (
	markerTopicComplete = "[TOPIC_COMPLETE]"
	markerDayComplete   = "[DAY_COMPLETE]"
)

var markers = []string{markerTopicComplete, markerDayComplete}

// markerFilter strips completion markers from a fragment stream before the
// fragments reach the caller. A fragment tail that could still grow into a
// marker is held back until the next fragment disambiguates it, so a marker
// split across stream chunks never leaks to the consumer.
type markerFilter struct {
	emit    func(string) error
	pending strings.Builder
	signal  progress.Signal
}

func newMarkerFilter(emit func(string) error) *markerFilter {
	return &markerFilter{emit: emit}
}

func (f *markerFilter) Feed(fragment string) error {
	if fragment == "" {
		return nil
	}
	f.pending.WriteString(fragment)
	return f.drain(false)
}

// Close flushes any held-back text that never became a marker and returns
// the accumulated completion signal.
func (f *markerFilter) Close() (progress.Signal, error) {
	if err := f.drain(true); err != nil {
		return f.signal, err
	}
	return f.signal, nil
}

func (f *markerFilter) drain(final bool) error {
	buf := f.pending.String()
	f.pending.Reset()

	var out strings.Builder
	for len(buf) > 0 {
		i := strings.IndexByte(buf, '[')
		if i < 0 {
			out.WriteString(buf)
			buf = ""
			break
		}
		out.WriteString(buf[:i])
		buf = buf[i:]

		if m := matchMarker(buf); m != "" {
			f.record(m)
			buf = buf[len(m):]
			continue
		}
		if !final && isMarkerPrefix(buf) {
			// Could still complete into a marker; hold it back.
			f.pending.WriteString(buf)
			buf = ""
			break
		}
		out.WriteByte('[')
		buf = buf[1:]
	}

	if out.Len() == 0 {
		return nil
	}
	return f.emit(out.String())
}

func (f *markerFilter) record(marker string) {
	switch marker {
	case markerTopicComplete:
		f.signal.TopicComplete = true
	case markerDayComplete:
		f.signal.DayComplete = true
	}
}

func matchMarker(s string) string {
	for _, m := range markers {
		if strings.HasPrefix(s, m) {
			return m
		}
	}
	return ""
}

// isMarkerPrefix reports whether s is a proper prefix of some marker,
// meaning more input could still turn it into one.
func isMarkerPrefix(s string) bool {
	for _, m := range markers {
		if len(s) < len(m) && strings.HasPrefix(m, s) {
			return true
		}
	}
	return false
}
