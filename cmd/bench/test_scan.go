package main

import (
	"bufio"
	"fmt"
	"net/http"
	"time"

	json2 "github.com/go-json-experiment/json"
)

// TestScan reads the whole view once per collation, counting the lines.
func TestScan(c Config, view string) {

	for _, sortBy := range []JSON{
		{},
		{"sortBy": "value"},
		{"sortBy": "value", "order": "descending"},
	} {
		body := JSON{"fields": []string{"noteId", "summary"}, "batchSize": c.Batch}
		for k, v := range sortBy {
			body[k] = v
		}
		payload, _ := json2.Marshal(body)

		t0 := time.Now()
		resp, err := Post(c.Base+"/v1/views/"+view+":scan", payload)
		if err != nil {
			fmt.Println("ERROR: do request:", err.Error())
			return
		}

		lines := int64(0)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines++
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			fmt.Println("ERROR: bad status:", resp.Status)
		}
		fmt.Println("scan", string(payload))
		Report("read", lines, time.Since(t0))
	}
}
