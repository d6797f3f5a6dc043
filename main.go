package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/broadcast"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/configure"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/ledger"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/mongo"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/redis"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/server"
	"github.com/Pushkkaarr/Real-Time-Poll-Rooms/store"
)

func main() {
	log.Infoln("Application Starting...")

	configCode := configure.Config.GetInt("exit_code")
	if configCode > 125 || configCode < 0 {
		log.Warnf("Invalid exit code specified in config (%v), using 0 as new exit code.", configCode)
		configCode = 0
	}

	mongo.Connect(configure.Config.GetString("mongo_uri"), configure.Config.GetString("mongo_db"))
	redis.Connect(configure.Config.GetString("redis_uri"))

	var bc *broadcast.Broadcaster
	if redis.Client != nil {
		bc = broadcast.NewRedis()
	} else {
		bc = broadcast.New()
	}

	var backend store.Backend
	if mongo.Database != nil {
		backend = store.NewMongoBackend()
	} else {
		backend = store.NewMemoryBackend()
	}

	pol := ledger.PolicyByName(configure.Config.GetString("vote_policy"))
	log.Infof("vote policy=%s", pol.Name())

	l := ledger.New(pol, configure.Config.GetInt("origin_ceiling"))
	st := store.New(backend, l, bc)

	c := make(chan os.Signal)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	s := server.NewServer(st, bc)

	go func() {
		sig := <-c
		log.Infof("sig=%v, gracefully shutting down...", sig)
		start := time.Now().UnixNano()

		wg := sync.WaitGroup{}
		wg.Add(1)

		go func() {
			defer wg.Done()
			if err := s.Shutdown(); err != nil {
				log.Errorf("server, shutdown=%v", err)
			}
		}()

		wg.Wait()

		log.Infof("Shutdown took, %.2fms", float64(time.Now().UnixNano()-start)/10e5)
		os.Exit(configCode)
	}()

	log.Infoln("Application Started.")

	select {}
}
