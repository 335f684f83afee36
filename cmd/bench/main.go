package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/fulldump/goconfig"
)

type Config struct {
	Test    string `usage:"name of the test: ALL | INSERT | SCAN | LOOKUP | PATCH"`
	Base    string `usage:"base URL, empty starts a local server"`
	N       int64  `usage:"number of documents"`
	Workers int    `usage:"number of workers"`
	Batch   int    `usage:"entries per index read when scanning"`
}

var cleanups []func()

func main() {

	defer func() {
		fmt.Println("Cleaning up...")
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	c := Config{
		Test:    "ALL",
		Base:    "",
		N:       100_000,
		Workers: 16,
	}
	goconfig.Read(&c)

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
	}

	switch strings.ToUpper(c.Test) {
	case "ALL":
		view := TestInsert(c)
		TestScan(c, view)
		TestLookup(c, view)
		TestPatch(c, view)
	case "INSERT":
		TestInsert(c)
	case "SCAN":
		TestScan(c, TestInsert(c))
	case "LOOKUP":
		TestLookup(c, TestInsert(c))
	case "PATCH":
		TestPatch(c, TestInsert(c))
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}

}
