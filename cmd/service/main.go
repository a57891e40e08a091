package main

import (
	"fmt"
	"log"

	"gitlab.com/artem.naboka/contacts-directory/internal/config"
	"gitlab.com/artem.naboka/contacts-directory/internal/service"
	"gitlab.com/artem.naboka/contacts-directory/internal/store"
)

// Usage example on the command line:
// > PORT=8080 DBHOST=localhost:3306 DBUSER=artem DBPWD=secret JWT_SECRET=changeme GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	sqlDB := service.CreateDatabase(cfg)
	store.Setup(sqlDB)
	router := service.SetupHttpRouter(cfg)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal(err)
	}
}
