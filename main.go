package main

import (
	"apod-discord-bot/bot"
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

func main() {
	file, err := os.ReadFile("./config.json")
	if err != nil {
		logrus.Fatalf("unable to read config file: %v", err.Error())
		return
	}

	var c bot.Config
	err = json.Unmarshal(file, &c)
	if err != nil {
		logrus.Fatalf("unable to unmarshall config file: %v", err.Error())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	confirm := make(chan struct{})
	go func() {
		if err := bot.Start(ctx, c, confirm); err != nil {
			logrus.Fatal(err)
		}
	}()
	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt, syscall.SIGTERM)
	<-s
	cancel()
	<-confirm
}
