package main

import (
	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/routes"
	"github.com/gopress/gopress/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
	)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("starting server on port %s", cfg.AppPort)
	if err := utils.Serve(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
