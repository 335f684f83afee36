package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// TestInsert streams N documents with one pipe per worker and returns the
// view name.
func TestInsert(c Config) string {

	view := CreateView(c.Base)

	items := c.N

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(time.Second):
				fmt.Println("items:", atomic.LoadInt64(&items))
			}
		}
	}()

	t0 := time.Now()
	Parallel(c.Workers, func() {

		r, w := io.Pipe()

		wb := bufio.NewWriterSize(w, 1*1024*1024)

		go func() {
			for {
				n := atomic.AddInt64(&items, -1)
				if n < 0 {
					break
				}
				fmt.Fprintf(wb, "{\"id\":\"%s\",\"value\":%d,\"worker\":%d}\n", Key(n), n%1000, n%int64(c.Workers))
			}
			wb.Flush()
			w.Close()
		}()

		req, err := http.NewRequest("POST", c.Base+"/v1/views/"+view+":insert", r)
		if err != nil {
			fmt.Println("ERROR: new request:", err.Error())
			os.Exit(3)
		}

		resp, err := client.Do(req)
		if err != nil {
			fmt.Println("ERROR: do request:", err.Error())
			os.Exit(4)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	})

	Report("inserted", c.N, time.Since(t0))
	return view
}
