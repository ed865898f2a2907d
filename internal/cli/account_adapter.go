package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyin-bo/autothread/internal/auth"
	"github.com/oyin-bo/autothread/pkg/errors"
)

// AccountManager is the session API the account commands drive
type AccountManager interface {
	Login(ctx context.Context, identifier, password string) (*auth.Credentials, error)
	Logout(handle string) (string, error)
	Accounts() ([]string, string, error)
	UseAccount(handle string) error
}

// LoginAdapter logs in with an app password, prompting for whatever was not
// given on the command line
type LoginAdapter struct {
	manager AccountManager

	// PromptInput and PromptPassword default to the terminal prompts
	PromptInput    func(prompt string) (string, error)
	PromptPassword func(prompt string) (string, error)
}

// NewLoginAdapter creates a new interactive login adapter
func NewLoginAdapter(manager AccountManager) *LoginAdapter {
	return &LoginAdapter{
		manager:        manager,
		PromptInput:    PromptForInput,
		PromptPassword: PromptForPassword,
	}
}

// Execute runs the login flow
func (a *LoginAdapter) Execute(ctx context.Context, args interface{}) (string, error) {
	loginArgs, ok := args.(*LoginArgs)
	if !ok {
		return "", fmt.Errorf("invalid arguments type for login")
	}

	handle := strings.TrimSpace(loginArgs.Handle)
	password := loginArgs.Password

	if handle == "" {
		prompted, err := a.PromptInput("Handle: ")
		if err != nil {
			return "", fmt.Errorf("failed to read handle: %w", err)
		}
		if prompted == "" {
			return "", errors.NewMCPError(errors.InvalidInput, "handle cannot be empty")
		}
		handle = prompted
	}

	if password == "" {
		prompted, err := a.PromptPassword("App Password: ")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if prompted == "" {
			return "", errors.NewMCPError(errors.InvalidInput, "password cannot be empty")
		}
		password = prompted
	}

	creds, err := a.manager.Login(ctx, handle, password)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Logged in as @%s (%s)\nSession saved to the system keyring as the default account.",
		creds.Handle, creds.DID), nil
}

// LogoutAdapter removes a saved session
type LogoutAdapter struct {
	manager AccountManager
}

// NewLogoutAdapter creates a new logout adapter
func NewLogoutAdapter(manager AccountManager) *LogoutAdapter {
	return &LogoutAdapter{manager: manager}
}

// Execute runs the logout command
func (a *LogoutAdapter) Execute(ctx context.Context, args interface{}) (string, error) {
	logoutArgs, ok := args.(*LogoutArgs)
	if !ok {
		return "", fmt.Errorf("invalid arguments type for logout")
	}

	handle, err := a.manager.Logout(strings.TrimPrefix(strings.TrimSpace(logoutArgs.Handle), "@"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Logged out @%s", handle), nil
}

// AccountsAdapter lists saved sessions and switches the default one
type AccountsAdapter struct {
	manager AccountManager
}

// NewAccountsAdapter creates a new accounts adapter
func NewAccountsAdapter(manager AccountManager) *AccountsAdapter {
	return &AccountsAdapter{manager: manager}
}

// Execute runs the accounts command
func (a *AccountsAdapter) Execute(ctx context.Context, args interface{}) (string, error) {
	accountsArgs, ok := args.(*AccountsArgs)
	if !ok {
		return "", fmt.Errorf("invalid arguments type for accounts")
	}

	if handle := strings.TrimPrefix(strings.TrimSpace(accountsArgs.Default), "@"); handle != "" {
		if err := a.manager.UseAccount(handle); err != nil {
			return "", err
		}
	}

	handles, defaultHandle, err := a.manager.Accounts()
	if err != nil {
		return "", err
	}
	if len(handles) == 0 {
		return "No saved accounts. Run 'autothread login' to add one.", nil
	}

	var sb strings.Builder
	sb.WriteString("Saved accounts:\n")
	for _, handle := range handles {
		marker := " "
		if handle == defaultHandle {
			marker = "✓"
		}
		fmt.Fprintf(&sb, "  %s @%s\n", marker, handle)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
