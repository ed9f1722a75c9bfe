package main

import "scenably/internal/bootstrap"

func main() {
	bootstrap.NewApp().Run()
}
