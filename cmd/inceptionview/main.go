package main

import (
	"fmt"
	"os"

	"github.com/fulldump/goconfig"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/joho/godotenv"

	"github.com/fulldump/inceptionview/bootstrap"
	"github.com/fulldump/inceptionview/configuration"
)

var VERSION = "dev"

var banner = `
 ___                      _   _          __     ___
|_ _|_ __   ___ ___ _ __ | |_(_) ___  _ _\ \   / (_) _____      __
 | || '_ \ / __/ _ \ '_ \| __| |/ _ \| '_ \ \ / /| |/ _ \ \ /\ / /
 | || | | | (_|  __/ |_) | |_| | (_) | | | \ V / | |  __/\ V  V /
|___|_| |_|\___\___| .__/ \__|_|\___/|_| |_|\_/  |_|\___| \_/\_/
                   |_|          version ` + VERSION + `
`

func main() {

	_ = godotenv.Load(".env")

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		json2.MarshalWrite(os.Stdout, c, jsontext.WithIndent("    "))
		fmt.Println()
	}

	bootstrap.VERSION = VERSION
	start, _ := bootstrap.Bootstrap(&c)
	start()
}
