package lokoextensions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/loko-ai/loko-extensions/payload_extractor"
	"golang.org/x/net/trace"
)

// A ServiceFunc receives exactly the two payloads extracted from the request:
// the primary value (an uploaded file header or a decoded JSON field) and the
// args payload (a decoded string in file-upload shapes, otherwise the decoded
// JSON value as-is).
type ServiceFunc func(value interface{}, args interface{}) (interface{}, error)

type ServiceCallLogger interface {
	Record(field string, value string)
}

// ValueArgsHandler wraps one ServiceFunc behind http.Handler, extracting the
// value and args payloads before every call. It keeps no state across
// invocations.
type ValueArgsHandler struct {
	fn                          ServiceFunc
	fileUpload                  bool
	explicitRequest             *http.Request
	serviceCallLoggerContextKey interface{}
}

type errorResponseBody struct {
	Code    int         `json:"code"`
	Summary string      `json:"summary"`
	Data    interface{} `json:"data"`
}

// NewValueArgsHandler builds a handler that extracts payloads from the request
// the routing layer passes in on every call.
func NewValueArgsHandler(fn ServiceFunc, fileUpload bool,
	serviceCallLoggerContextKey interface{}) (*ValueArgsHandler, error) {
	if fn == nil {
		return nil, fmt.Errorf("the service function should not be nil")
	}

	return &ValueArgsHandler{
		fn:                          fn,
		fileUpload:                  fileUpload,
		serviceCallLoggerContextKey: serviceCallLoggerContextKey,
	}, nil
}

// NewExplicitRequestHandler builds a handler bound to one request object at
// construction time. Extraction always reads the bound request, whatever the
// routing layer passes in later.
func NewExplicitRequestHandler(fn ServiceFunc, req *http.Request, fileUpload bool,
	serviceCallLoggerContextKey interface{}) (*ValueArgsHandler, error) {
	if fn == nil {
		return nil, fmt.Errorf("the service function should not be nil")
	}

	if req == nil {
		return nil, fmt.Errorf("the explicit request should not be nil")
	}

	return &ValueArgsHandler{
		fn:                          fn,
		fileUpload:                  fileUpload,
		explicitRequest:             req,
		serviceCallLoggerContextKey: serviceCallLoggerContextKey,
	}, nil
}

func (h *ValueArgsHandler) newPayloadExtractor(req *http.Request) (extractor payload_extractor.ValueArgsExtractor) {
	if h.fileUpload {
		// the two multipart layouts address the args part differently: the
		// explicit-request shape reads a single named part, the default shape
		// indexes the first element of the part sequence.
		if h.explicitRequest != nil {
			extractor = payload_extractor.NewMultipartStreamArgsExtractor(req)
		} else {
			extractor = payload_extractor.NewMultipartIndexedArgsExtractor(req)
		}

		return
	}

	contentType := req.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		extractor = payload_extractor.NewJSONValueArgsExtractor(req)
	} else {
		// even when the content type was not "application/x-www-form-urlencoded",
		// the form extractor also can parse the pair encoded in query string.
		extractor = payload_extractor.NewFormValueArgsExtractor(req)
	}

	return
}

func setJSONResponseHeader(w http.ResponseWriter) {
	// Prevents Internet Explorer from MIME-sniffing a response away from the declared content-type
	w.Header().Set("x-content-type-options", "nosniff")
	w.Header().Set("Content-Type", "application/json")
}

func writeJSONResponse(w http.ResponseWriter, tr trace.Trace, data interface{}) {
	tr.LazyPrintf("%+v", data)
	setJSONResponseHeader(w)
	enc := json.NewEncoder(w)
	enc.Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, tr trace.Trace, data interface{}, code int, summary string) {
	tr.LazyPrintf("%s: %+v", summary, data)
	tr.SetError()
	setJSONResponseHeader(w)
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.Encode(&errorResponseBody{code, summary, data})
}

func doServiceCall(fn ServiceFunc, value interface{},
	args interface{}) (result interface{}, callErr error, panicked interface{}) {
	defer func() {
		panicked = recover()
	}()

	result, callErr = fn(value, args)
	return
}

func (h *ValueArgsHandler) ServeHTTP(respWriter http.ResponseWriter, req *http.Request) {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		panic("can not ascend the stack!")
	}

	tracer := trace.New(runtime.FuncForPC(pc).Name(), req.URL.Path)
	defer tracer.Finish()

	// resolve the request object: the one bound at construction wins, else the
	// one the routing layer passed in.
	extractionReq := req
	if h.explicitRequest != nil {
		extractionReq = h.explicitRequest
	}

	// extract payloads. extraction faults come straight from the request's own
	// access methods, untranslated.
	extractor := h.newPayloadExtractor(extractionReq)
	value, args, extractErr := extractor.Extract()
	if extractErr != nil {
		writeErrorResponse(respWriter, tracer, extractErr.Error(), 400, "extract payloads failed")
		return
	}

	// do service call.
	beginTime := time.Now()
	result, callErr, callPanic := doServiceCall(h.fn, value, args)
	duration := time.Now().Sub(beginTime)

	// write the return value or errors to response.
	if callPanic != nil {
		writeErrorResponse(respWriter, tracer, callPanic, 500, "service function panicked")
	} else if callErr != nil {
		writeErrorResponse(respWriter, tracer, callErr.Error(), 500, "service function error")
	} else {
		writeJSONResponse(respWriter, tracer, result)
	}

	// record some thing if logger existed.
	if h.serviceCallLoggerContextKey != nil {
		logger, ok := req.Context().Value(h.serviceCallLoggerContextKey).(ServiceCallLogger)
		if ok && logger != nil {
			marshaledArgs, err := json.Marshal(args)
			if err != nil {
				panic(err)
			}

			logger.Record("serviceCallArgs", string(marshaledArgs))
			logger.Record("serviceCallBeginTime", beginTime.String())
			logger.Record("serviceCallDuration", strconv.FormatFloat(duration.Seconds(), 'f', -1, 64))
		}
	}
}
