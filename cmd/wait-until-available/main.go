package main

import (
	"fmt"
	"net/http"
	"time"
)

// Polls the service's health probe until it answers, for use in scripts that
// have to wait for the service to come up.
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/healthz")
		if err == nil {
			if res.StatusCode == http.StatusOK {
				fmt.Println(res)
				break
			} else {
				fmt.Println(res)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
