package main

import "github.com/dbsmedya/dbsample/cmd/dbsample/cmd"

func main() {
	cmd.Execute()
}
