// Command yamlcheck validates YAML files with the strict parser.
package main

import "github.com/shapestone/shape-yaml-strict/internal/cli"

func main() {
	cli.Execute()
}
