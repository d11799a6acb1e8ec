package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/trendhack/dashboard/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	dbURL := fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		env.GetEnv("DB_USER", "trendhack"),
		env.GetEnv("DB_PASSWORD", "trendhack"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "trendhack"),
	)

	log.Printf("Conectando ao banco: %s@%s:%s/%s",
		env.GetEnv("DB_USER", "trendhack"),
		env.GetEnv("DB_HOST", "db"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "trendhack"),
	)

	m, err := migrate.New("file://"+env.GetEnv("MIGRATIONS_PATH", "migrations"), dbURL)
	if err != nil {
		log.Fatalf("Erro ao inicializar as migrações: %v", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Erro ao fechar os recursos de migração: %v, %v", sourceErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Println("Nenhuma alteração: o banco já está atualizado")
		case err != nil:
			log.Fatalf("Erro ao executar as migrações: %v", err)
		default:
			log.Println("Migrações executadas com sucesso")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatalf("Erro ao reverter a última migração: %v", err)
		}
		log.Println("Última migração revertida com sucesso")

	case "goto":
		version := versionArg()
		err := m.Migrate(version)
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Printf("Nenhuma alteração: o banco já está na versão %d", version)
		case err != nil:
			log.Fatalf("Erro ao migrar para a versão %d: %v", version, err)
		default:
			log.Printf("Migração para a versão %d concluída", version)
		}

	case "force":
		// clears the dirty flag after a failed migration was fixed by hand
		version := versionArg()
		if err := m.Force(int(version)); err != nil {
			log.Fatalf("Erro ao forçar a versão %d: %v", version, err)
		}
		log.Printf("Versão forçada para %d", version)

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Println("Nenhuma migração foi executada ainda")
		case err != nil:
			log.Fatalf("Erro ao ler a versão das migrações: %v", err)
		default:
			dirtyStatus := ""
			if dirty {
				dirtyStatus = " (dirty)"
			}
			log.Printf("Versão atual das migrações: %d%s", version, dirtyStatus)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func versionArg() uint {
	if len(os.Args) < 3 {
		log.Fatalf("Informe o número da versão")
	}
	version, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil {
		log.Fatalf("Número de versão inválido: %v", err)
	}
	return uint(version)
}

func printUsage() {
	fmt.Println("Uso: go run cmd/migrate/main.go [comando]")
	fmt.Println("Comandos disponíveis:")
	fmt.Println("  up      - Executa todas as migrações pendentes")
	fmt.Println("  down    - Reverte a última migração")
	fmt.Println("  goto N  - Migra para a versão N")
	fmt.Println("  force N - Marca a versão N como aplicada e limpa o estado dirty")
	fmt.Println("  status  - Mostra a versão atual")
}
