package main

import (
	"log"

	"github.com/ChiragAgg5k/email-ticket-automator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
