package main

import (
	"fmt"
	"os"

	"github.com/gestaozabele/checkin/internal/auth"
)

// hashpass gera hash argon2id para semear contas diretamente no banco.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: hashpass <senha> [hash-existente]")
		os.Exit(1)
	}

	if len(os.Args) == 3 {
		ok, err := auth.Verify(os.Args[1], os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "erro ao verificar: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("não confere")
			os.Exit(2)
		}
		if auth.IsLegacyHash(os.Args[2]) {
			fmt.Println("confere (hash bcrypt legado)")
			return
		}
		fmt.Println("confere")
		return
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "erro ao gerar hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
