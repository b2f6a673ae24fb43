/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/beluga/cmd/beluga/cmd"
	"github.com/ssargent/beluga/pkg/di"
)

func main() {
	container := di.NewContainer()
	cmd.SetContainer(container)
	cmd.Execute()
}
