package factory

import (
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/nats-io/nkeys"
	"github.com/voxscribe/voxscribe-server/pkg/config"
)

func TestBuildDSN(t *testing.T) {
	loc := "Europe/Berlin"
	charset := "utf8"

	tests := []struct {
		name string
		info config.DatabaseInfo
		want []string
	}{
		{
			name: "defaults",
			info: config.DatabaseInfo{DBName: "voxscribe"},
			want: []string{"root:p@ss@tcp(db:3306)/voxscribe", "charset=utf8mb4", "parseTime=true"},
		},
		{
			name: "custom charset and location",
			info: config.DatabaseInfo{DBName: "voxscribe", Charset: &charset, Loc: &loc},
			want: []string{"charset=utf8", "loc=Europe%2FBerlin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := buildDSN(&tt.info, "root", "p@ss", "db", 3306)
			if err != nil {
				t.Fatalf("buildDSN() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(dsn, w) {
					t.Errorf("dsn %q is missing %q", dsn, w)
				}
			}
		})
	}
}

func TestBuildDSN_InvalidLocation(t *testing.T) {
	loc := "Mars/Olympus"
	if _, err := buildDSN(&config.DatabaseInfo{Loc: &loc}, "root", "", "db", 3306); err == nil {
		t.Fatal("expected an error for an unknown location")
	}
}

func TestNkeyOptionFromSeed(t *testing.T) {
	user, err := nkeys.CreateUser()
	if err != nil {
		t.Fatal(err)
	}
	seed, err := user.Seed()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := nkeyOptionFromSeed(string(seed)); err != nil {
		t.Errorf("valid user seed rejected: %v", err)
	}

	account, err := nkeys.CreateAccount()
	if err != nil {
		t.Fatal(err)
	}
	accountSeed, _ := account.Seed()
	if _, err := nkeyOptionFromSeed(string(accountSeed)); err == nil {
		t.Error("account seed should be rejected")
	}

	if _, err := nkeyOptionFromSeed("not-a-seed"); err == nil {
		t.Error("garbage seed should be rejected")
	}
}
