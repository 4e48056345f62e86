// @title        Post Management API
// @version      1.0
// @description  貼文管理後端 API：使用者註冊登入、貼文 CRUD 與圖片上傳
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description 格式為 "Bearer <token>"
package main

import (
	"log"
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := run(); err != nil {
		log.Print(err)
		exitFunc(1)
	}
}
