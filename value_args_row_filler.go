package lokoextensions

type serviceCallRowLogger struct {
	row AccessLogRow
}

const ValueArgsAccessLogRowFillerContextKey = "lokoextensions.ValueArgsAccessLogRowFiller"

func (l *serviceCallRowLogger) Record(field string, value string) {
	l.row.SetRowField(field, value)
}

func ValueArgsAccessLogRowFillerFactory(row AccessLogRow) AccessLogRowFiller {
	return &serviceCallRowLogger{row}
}
