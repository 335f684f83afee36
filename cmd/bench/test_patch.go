package main

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// TestPatch changes the resorted value of random documents. Note ids are
// assigned in steps of 4 starting at 4.
func TestPatch(c Config, view string) {

	url := c.Base + "/v1/views/" + view + ":patch"
	var op int64

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			n := atomic.AddInt64(&op, 1)
			if n > c.N {
				return
			}
			noteID := 4 * (1 + n%c.N)
			body := fmt.Sprintf(`{"noteId":%d,"patch":{"value":%d}}`, noteID, n)
			resp, err := Post(url, []byte(body))
			if err != nil {
				fmt.Println("ERROR: do request:", err.Error())
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				fmt.Println("ERROR: bad status:", resp.Status)
			}
		}
	})

	Report("patched", c.N, time.Since(t0))
}
