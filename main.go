package main

import (
	"github.com/StayBridge/StayBridge-Backend/api"
)

func main() {
	server := api.NewServer(".")
	server.Start()
}
