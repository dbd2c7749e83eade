package restyutil

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// a sink for raw request/response transcripts.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type dumpCtx struct {
	output    InstrumentOutput
	idcounter *uint64
}

// registers hooks that dump every request/response pair the client
// handles to `output`. `output` can be nil, in which case the function
// is a no-op. spans are handled separately in telemetry.InstrumentResty,
// this is purely a debugging aid.
func DumpClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	d := dumpCtx{output: output, idcounter: &idcounter}
	client.OnAfterResponse(d.onAfterResponse)
	client.OnError(d.onError)
}

func (d dumpCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	messageId := strconv.FormatUint(atomic.AddUint64(d.idcounter, 1), 10)
	d.output.Write(messageId, formatHttpMessage(res))
	slog.Debug(
		"request succeeded",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"message_id", messageId,
	)
	return nil
}

func (d dumpCtx) onError(req *resty.Request, err error) {
	slog.Error(
		"request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
	)
}
