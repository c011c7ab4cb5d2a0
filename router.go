package lokoextensions

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// ServiceRoute binds one ServiceFunc to a method and path. FileUpload selects
// the multipart extraction shape instead of the JSON/form one.
type ServiceRoute struct {
	Method     string
	Path       string
	Func       ServiceFunc
	FileUpload bool
}

func RegisterServicesToHTTPRouter(r *httprouter.Router, serviceCallLoggerContextKey interface{},
	routes []*ServiceRoute) error {
	for _, route := range routes {
		handler, err := NewValueArgsHandler(route.Func, route.FileUpload, serviceCallLoggerContextKey)
		if err != nil {
			return err
		}

		r.Handler(route.Method, route.Path, handler)
	}

	return nil
}

func NewHTTPRouter(routes []*ServiceRoute) (*httprouter.Router, error) {
	router := httprouter.New()
	err := RegisterServicesToHTTPRouter(router, ValueArgsAccessLogRowFillerContextKey, routes)
	if err != nil {
		return nil, err
	}

	return router, nil
}

func NewLoggingHTTPRouter(routes []*ServiceRoute, options *AccessLogOptions) (http.Handler, error) {
	router, err := NewHTTPRouter(routes)
	if err != nil {
		return nil, err
	}

	return NewAccessLogDecorator(router, options, ValueArgsAccessLogRowFillerContextKey,
		ValueArgsAccessLogRowFillerFactory)
}
