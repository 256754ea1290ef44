package networking

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tungate/tungate/internal/errors"
	"github.com/tungate/tungate/internal/log"
)

// EnsureTable ensures the rt_tables registry contains a "<id> <name>" entry
// for the managed routing table. The registry is shared with other software,
// so it is only ever appended to, never rewritten. Calling this repeatedly
// never produces a second line for the same id.
func EnsureTable(path string, id int, name string) error {
	exists, endsWithNewline, err := tableRegistered(path, id)
	if err != nil {
		return err
	}
	if exists {
		log.Debugf("Routing table %d is already registered in %s", id, path)
		return nil
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return errors.NewRegistryError(fmt.Sprintf("failed to open %s for appending", path), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("Failed to close %s: %v", path, err)
		}
	}()

	entry := fmt.Sprintf("%d\t%s\n", id, name)
	if !endsWithNewline {
		entry = "\n" + entry
	}
	if _, err := file.WriteString(entry); err != nil {
		return errors.NewRegistryError(fmt.Sprintf("failed to append table entry to %s", path), err)
	}

	log.Infof("Registered routing table %d as %q in %s", id, name, path)
	return nil
}

// tableRegistered reports whether the registry already carries a line whose
// first whitespace-separated token equals id. A missing registry file is
// treated as empty.
func tableRegistered(path string, id int) (registered bool, endsWithNewline bool, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, true, nil
		}
		return false, false, errors.NewRegistryError(fmt.Sprintf("failed to read %s", path), err)
	}

	token := strconv.Itoa(id)
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == token {
			registered = true
		}
	}

	endsWithNewline = len(content) == 0 || content[len(content)-1] == '\n'
	return registered, endsWithNewline, nil
}
