package main

import (
	"context"
	"log"

	"github.com/yapplr/yapplr/internal/server"
	"github.com/yapplr/yapplr/internal/server/config"
)

func main() {

	if err := server.RunWorker(context.Background(), config.LoadConfig()); err != nil {
		log.Fatalf("%v", err)
	}

}
