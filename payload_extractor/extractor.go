package payload_extractor

// payload_extractor reads the value and args payloads out of a request using a
// specific request shape. One implementation exists per supported shape and
// the caller selects it explicitly, never by inspecting the request.
type ValueArgsExtractor interface {
	// Reads the request yielding the primary value payload and the args payload.
	Extract() (value interface{}, args interface{}, err error)
}

var multipartMem int64 = 2 << 20 * 10

func MultipartMem() int64 {
	return multipartMem
}

func SetMultipartMem(mem int64) {
	multipartMem = mem
}
