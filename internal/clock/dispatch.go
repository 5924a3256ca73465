package clock

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"

	"tradecore/internal/obs"
)

// invoke runs a handler at the dispatch boundary. Errors and panics are logged and
// counted so one failing handler cannot stop delivery to the others.
func invoke(handler Handler, event TimeEvent, metrics *obs.Metrics) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncHandlerPanic()
			logs.Errorf("timer %s handler panicked at %s, recovered: %+v", event.Name, event.Scheduled.Format(time.RFC3339Nano), r)
		}
	}()

	begin := time.Now()
	err := handler(event)
	metrics.ObserveHandler(time.Since(begin))
	if err != nil {
		metrics.IncHandlerFailure()
		logs.Errorf("timer %s handler failed at %s, err: %+v", event.Name, event.Scheduled.Format(time.RFC3339Nano), err)
	}
}

func logCancelMiss(name string) {
	logs.Warnf("cancel timer %s: not found", name)
}

func logExpired(t *timer) {
	logs.Infof("timer %s expired, stop time %s", t.name, t.stop.Format(time.RFC3339Nano))
}

// eventNamespace seeds deterministic event ids of the simulated clock.
var eventNamespace = uuid.MustParse("6f1d3b8e-3c2a-5b7e-9a41-0d8c2f6e4b17")

// deterministicEventID derives an event id from the event content and its position in
// the run, so identical runs produce identical ids.
func deterministicEventID(name string, scheduled time.Time, seq uint64) uuid.UUID {
	buf := make([]byte, 0, len(name)+24)
	buf = append(buf, name...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(scheduled.UnixNano()))
	buf = binary.BigEndian.AppendUint64(buf, seq)
	return uuid.NewSHA1(eventNamespace, buf)
}
