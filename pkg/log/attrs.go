package log

import "log/slog"

func WorkflowID[T ~string](id T) slog.Attr {
	return slog.String("workflow_id", string(id))
}

func SectionID[T ~string](id T) slog.Attr {
	return slog.String("section_id", string(id))
}

func StepID[T ~string](id T) slog.Attr {
	return slog.String("step_id", string(id))
}

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
