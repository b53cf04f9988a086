/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/killallgit/depthtrack-api/cmd"

// @title           DepthTrack API
// @version         1.0.0
// @description     Video asset store with asynchronous depth generation and object tracking annotations
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/depthtrack-api
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
