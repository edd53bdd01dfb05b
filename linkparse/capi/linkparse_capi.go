// ABOUTME: C API wrapper for the linkparse library to enable FFI usage
// ABOUTME: Provides C-compatible functions returning JSON strings for native applications

package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"context"
	"encoding/json"
	"sync"
	"unsafe"

	"linkparse-api/linkparse"
)

// One client per process; native callers init once and share it
var (
	clientMu sync.Mutex
	client   *linkparse.Client
)

//export LinkparseInit
func LinkparseInit() C.int {
	return initClient()
}

//export LinkparseInitWithCache
func LinkparseInitWithCache(cacheType *C.char, cachePath *C.char) C.int {
	opt := linkparse.CacheOption{Type: linkparse.CacheTypeMemory}
	if C.GoString(cacheType) == "sqlite" {
		opt = linkparse.CacheOption{
			Type:     linkparse.CacheTypeSQLite,
			FilePath: C.GoString(cachePath),
		}
	}
	return initClient(linkparse.WithCacheOption(opt))
}

func initClient(opts ...linkparse.Option) C.int {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client != nil {
		_ = client.Close()
		client = nil
	}

	c, err := linkparse.NewClient(opts...)
	if err != nil {
		return -1
	}
	client = c
	return 0
}

//export LinkparseClose
func LinkparseClose() {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client != nil {
		_ = client.Close()
		client = nil
	}
}

//export LinkparseParse
func LinkparseParse(url *C.char, force C.int) *C.char {
	clientMu.Lock()
	c := client
	clientMu.Unlock()

	if c == nil {
		return errorString("client not initialized")
	}

	var opts []linkparse.ParseOption
	if force != 0 {
		opts = append(opts, linkparse.WithForceRefresh())
	}

	result, err := c.Parse(context.Background(), C.GoString(url), opts...)
	if err != nil {
		return errorString(err.Error())
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errorString("failed to marshal response")
	}
	return C.CString(string(data))
}

//export LinkparseNormalize
func LinkparseNormalize(url *C.char) *C.char {
	normalized, err := linkparse.Normalize(C.GoString(url))
	if err != nil {
		return errorString(err.Error())
	}
	data, _ := json.Marshal(map[string]string{"url": normalized})
	return C.CString(string(data))
}

//export LinkparseFreeString
func LinkparseFreeString(str *C.char) {
	C.free(unsafe.Pointer(str))
}

func errorString(msg string) *C.char {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return C.CString(string(data))
}

// Required for building as shared library
func main() {}
