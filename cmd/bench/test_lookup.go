package main

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

// TestLookup runs N lookups of existing keys spread over the workers.
func TestLookup(c Config, view string) {

	url := c.Base + "/v1/views/" + view + ":lookup"
	pending := c.N
	misses := int64(0)

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for atomic.AddInt64(&pending, -1) >= 0 {
			key := Key(rand.Int63n(c.N))
			resp, err := Post(url, []byte(`{"keys":["`+key+`"],"fields":["noteId"]}`))
			if err != nil {
				fmt.Println("ERROR: do request:", err.Error())
				return
			}
			n, _ := io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK || n == 0 {
				atomic.AddInt64(&misses, 1)
			}
		}
	})

	Report("lookups", c.N, time.Since(t0))
	fmt.Println("misses:", misses)
}
