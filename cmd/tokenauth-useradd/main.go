// Command tokenauth-useradd creates or updates a user in the tokenauth
// users database. The password is read from the first line of stdin:
//
//	echo 'secret123' | tokenauth-useradd -username alice
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/MrEthical07/tokenauth/internal/app"
)

func main() {
	log.SetPrefix("[TOKENAUTH] ")
	log.SetFlags(0)

	cfg, err := app.ParseUserAddConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := app.RunUserAdd(context.Background(), cfg, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
