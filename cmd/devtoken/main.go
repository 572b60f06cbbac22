// Command devtoken prints an operator access token signed with JWT_SECRET,
// for calling a local console without a PMS login.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/iliyamo/hotel-pms-console/internal/config"
	"github.com/iliyamo/hotel-pms-console/internal/utils"
)

func main() {
	operator := flag.String("operator", "dev", "operator id (sub claim)")
	role := flag.String("role", "front_desk", "operator role")
	name := flag.String("name", "", "display name")
	flag.Parse()

	cfg := config.Load()
	tok, err := utils.NewAccessToken(cfg.JWTSecret, *operator, *role, *name, cfg.AccessTTLMin)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
}
