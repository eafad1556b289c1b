package main

//go:generate swag init -g cmd/superyield/main.go -o docs

// @title           SuperYield Allocation Agent API
// @version         1.0
// @description     Validated LLM allocation decisions for the SuperYield vault.
// @BasePath        /
// @schemes         http
