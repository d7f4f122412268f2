package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/adapters/persistence"
	"github.com/khoahotran/talent-portfolio/internal/config"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	"github.com/khoahotran/talent-portfolio/pkg/auth"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

// Seeds a demo talent with a small portfolio and prints tokens for the talent
// and for a business counterparty. TALENT_ID pins the talent id.
func main() {
	fmt.Println("seeding demo talent...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)

	ownerID := uuid.New()
	if raw := os.Getenv("TALENT_ID"); raw != "" {
		if ownerID, err = uuid.Parse(raw); err != nil {
			log.Fatalf("invalid TALENT_ID: %v", err)
		}
	}

	pool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	doc := profile.NewDocument(ownerID)
	doc.Name = "Demo Talent"
	doc.Title = "Photographer"
	doc.Bio = "Portrait and event photography."
	doc.Skills.Append(profile.Record{"name": "Lighting"})
	doc.Skills.Append(profile.Record{"name": "Retouching"})
	doc.Experience.Append(profile.Record{"title": "Lead Photographer", "company": "Studio North"})
	doc.SocialLinks = []profile.SocialLink{{Platform: "instagram", URL: "instagram.com/demo"}}
	doc.UpdatedAt = now
	if err := persistence.NewPostgresProfileRepo(pool, appLogger).Upsert(ctx, doc); err != nil {
		log.Fatalf("cannot seed profile: %v", err)
	}

	cfgShare := share.Closed(ownerID)
	cfgShare.ShareIntro = true
	cfgShare.ShareSkills = true
	cfgShare.ShareExperience = true
	cfgShare.ShareSocial = true
	cfgShare.UpdatedAt = now
	if err := persistence.NewPostgresShareRepo(pool, appLogger).Upsert(ctx, cfgShare); err != nil {
		log.Fatalf("cannot seed share configuration: %v", err)
	}

	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	talentToken, err := jwtSvc.GenerateToken(ownerID, auth.RoleTalent)
	if err != nil {
		log.Fatalf("cannot mint talent token: %v", err)
	}
	businessToken, err := jwtSvc.GenerateToken(uuid.New(), auth.RoleBusiness)
	if err != nil {
		log.Fatalf("cannot mint business token: %v", err)
	}

	fmt.Printf("seeded talent %s\n", ownerID)
	fmt.Printf("talent token:   %s\n", talentToken)
	fmt.Printf("business token: %s\n", businessToken)
}
