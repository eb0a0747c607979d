package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/kirinyoku/canteen-go/docs"
	"github.com/kirinyoku/canteen-go/internal/cli"
)

// @title Canteen API
// @version 1.0
// @description Cafeteria tickets and the venue catalog they reference.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
