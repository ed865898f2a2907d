package cli

// LoginArgs defines arguments for the login command
type LoginArgs struct {
	Handle   string `json:"handle,omitempty" jsonschema:"description=Bluesky handle (e.g. alice.bsky.social) (optional - will prompt if not provided)" short:"u" long:"handle"`
	Password string `json:"password,omitempty" jsonschema:"description=App password (generated in Bluesky settings) (optional - will prompt if not provided)" short:"p" long:"password"`
}

// LogoutArgs defines arguments for the logout command
type LogoutArgs struct {
	Handle string `json:"handle,omitempty" jsonschema:"description=Bluesky handle to log out (uses default if not provided)" short:"u" long:"handle"`
}

// AccountsArgs defines arguments for the accounts command
type AccountsArgs struct {
	Default string `json:"default,omitempty" jsonschema:"description=Handle to make the default account" short:"d" long:"default"`
}

// SplitArgs defines arguments for the split preview command
type SplitArgs struct {
	Content string `json:"content,omitempty" jsonschema:"description=Text to split" short:"c" long:"content"`
	File    string `json:"file,omitempty" jsonschema:"description=Read the text from a file (- for stdin)" short:"f" long:"file"`
	Limit   int    `json:"limit,omitempty" jsonschema:"description=Maximum characters per post (default 300)" short:"l" long:"limit"`
}

// ThreadArgs defines arguments for the thread command
type ThreadArgs struct {
	Content string `json:"content,omitempty" jsonschema:"description=Text to publish as a thread" short:"c" long:"content"`
	File    string `json:"file,omitempty" jsonschema:"description=Read the text from a file (- for stdin)" short:"f" long:"file"`
	Title   string `json:"title,omitempty" jsonschema:"description=Title kept with the draft if publishing fails" short:"t" long:"title"`
}
