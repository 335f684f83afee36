package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	json2 "github.com/go-json-experiment/json"

	"github.com/fulldump/inceptionview/bootstrap"
	"github.com/fulldump/inceptionview/configuration"
)

type JSON = map[string]any

var client = &http.Client{
	Transport: &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConnsPerHost: 1024,
		MaxIdleConns:        1024,
	},
}

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

func TempDir() (string, func()) {
	dir, err := os.MkdirTemp("", "inceptionview_bench_*")
	if err != nil {
		panic("Could not create temp directory: " + err.Error())
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// CreateView creates a view sorted by id with a resort on value. It retries
// while the server is starting.
func CreateView(base string) string {

	name := "view-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	payload, _ := json2.Marshal(JSON{
		"name": name,
		"columns": []JSON{
			{"name": "id", "sorted": true},
			{"name": "value", "type": "number", "resortAscending": true, "resortDescending": true},
			{"name": "worker", "type": "number"},
		},
	})

	for i := 0; i < 100; i++ {
		resp, err := Post(base+"/v1/views", payload)
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusCreated {
			return name
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("ERROR: could not create view")
	os.Exit(2)
	return ""
}

func Post(url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

// Key formats n so that the text order matches the numeric order.
func Key(n int64) string {
	return fmt.Sprintf("%012d", n)
}

func Report(name string, n int64, took time.Duration) {
	fmt.Println(name+":", n)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f rows/sec\n", float64(n)/took.Seconds())
}

func CreateServer(c *Config) (start, stop func()) {
	dir, cleanup := TempDir()
	cleanups = append(cleanups, cleanup)

	conf := configuration.Default()
	conf.Dir = dir
	conf.ShowBanner = false
	conf.LogLevel = "warn"
	conf.BatchSize = c.Batch
	c.Base = "http://" + conf.HttpAddr

	return bootstrap.Bootstrap(&conf)
}
