// Loader program for atlas-provider-gorm: prints the DDL of the gorm
// models so Atlas can diff migrations against it (see atlas.hcl).
package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"

	"gavel/models"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(
		&models.User{},
		&models.Auction{},
		&models.Bid{},
		&models.PaymentProof{},
		&models.Commission{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
