package barrier

import (
	"fmt"
	"strconv"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
)

const errComponent = "Barrier"

func newInvalidArgument(err error) bacerrors.Error {
	return bacerrors.Wrap(err, "invalid barrier argument").
		WithCode(bacerrors.InvalidArgument).
		WithComponent(errComponent)
}

func newOverCompletion(id string, fired, total int) bacerrors.Error {
	return bacerrors.New("reported more completions than required: %d of %d", fired, total).
		WithCode(bacerrors.OverCompletion).
		WithComponent(errComponent).
		WithHint("call ReportDone exactly once per operation").
		WithDetails(map[string]string{
			"barrier": id,
			"fired":   strconv.Itoa(fired),
			"total":   strconv.Itoa(total),
		})
}

func newObserverPanic(id string, kind string, recovered any) bacerrors.Error {
	return bacerrors.New("%s observer panicked: %s", kind, fmt.Sprint(recovered)).
		WithCode(bacerrors.ObserverPanic).
		WithComponent(errComponent).
		WithDetail("barrier", id)
}
