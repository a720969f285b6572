package binlog

import (
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

// NearestTime binary-searches the file for the event closest to target,
// a unix timestamp. Each probe is itself a Nearest scan, so a probe may land
// in a stretch with no plausible events; the search then stops with the best
// event found so far. An exact timestamp match ends the search at once.
// Otherwise the result is moved to the first event at or after target among
// the events next to where the search converged.
func (s *Scanner) NearestTime(target int64) (*Event, error) {
	size, err := s.size()
	if err != nil {
		return nil, err
	}
	offset := size / 2
	step := size / 4
	dir := Forward
	var best *Event
	for step > 2 {
		ev, err := s.Nearest(offset, dir)
		if err != nil {
			if !IsNotFound(err) {
				return nil, err
			}
			s.log.Warn("ran off the end of the file during time search",
				zap.Int64("offset", offset),
				zap.Int64("target", target))
			break
		}
		best = ev
		delta := int64(ev.Timestamp) - target
		s.log.Debug("time probe",
			zap.Int64("offset", ev.Offset),
			zap.Int64("delta", delta),
			zap.Int64("step", step))
		if delta == 0 {
			return ev, nil
		}
		if delta > 0 {
			dir = Backward
		} else {
			dir = Forward
		}
		offset += step * int64(dir)
		step /= 2
	}
	if best == nil {
		return nil, errors.Annotatef(ErrNotFound, "no event near timestamp %d", target)
	}
	return s.refineTime(best, target, size)
}

func (s *Scanner) refineTime(best *Event, target, size int64) (*Event, error) {
	for i := 0; i < s.refine; i++ {
		ts := int64(best.Timestamp)
		if ts < target {
			next, err := s.eventAt(best.End(), size)
			if err != nil {
				return nil, err
			}
			if next == nil {
				break
			}
			best = next
			if int64(next.Timestamp) >= target {
				break
			}
			continue
		}
		if ts == target || best.Offset == 0 {
			break
		}
		prev, err := s.Nearest(best.Offset-1, Backward)
		if err != nil {
			if IsNotFound(err) {
				break
			}
			return nil, err
		}
		if int64(prev.Timestamp) < target {
			break
		}
		best = prev
	}
	return best, nil
}
