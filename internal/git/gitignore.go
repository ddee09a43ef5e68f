package git

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// IsRepository checks if the current directory is inside a Git repository.
func IsRepository() bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	return cmd.Run() == nil
}

// UpdateGitignore ensures the given entries are present in .gitignore,
// creating the file when needed. It returns the entries it appended so
// the caller can report them.
func UpdateGitignore(entries []string) ([]string, error) {
	file, err := os.OpenFile(".gitignore", os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open or create .gitignore: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("could not seek in .gitignore: %w", err)
	}

	existing := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		existing[strings.TrimSpace(scanner.Text())] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading .gitignore: %w", err)
	}

	var added []string
	for _, entry := range entries {
		if existing[entry] {
			continue
		}
		if _, err := file.WriteString("\n" + entry); err != nil {
			return nil, fmt.Errorf("failed to write to .gitignore: %w", err)
		}
		added = append(added, entry)
	}

	return added, nil
}
