package app

import (
    "bufio"
    "errors"
    "os"
    "strings"
)

// LoadEnvFiles loads dotenv files of KEY=VALUE pairs into the process
// environment, typically CHROME_PATH and the LLM_* keys. Later files override
// earlier ones. Lines starting with '#' and blank lines are ignored, a leading
// "export " is accepted and values are not expanded.
func LoadEnvFiles(paths ...string) error {
    for _, p := range paths {
        if strings.TrimSpace(p) == "" {
            continue
        }
        if err := loadEnvFile(p); err != nil {
            // Missing files are not fatal; continue to next path
            if errors.Is(err, os.ErrNotExist) {
                continue
            }
            return err
        }
    }
    return nil
}

func loadEnvFile(path string) error {
    f, err := os.Open(path)
    if err != nil {
        return err
    }
    defer f.Close()

    scanner := bufio.NewScanner(f)
    for scanner.Scan() {
        line := strings.TrimSpace(scanner.Text())
        if line == "" || strings.HasPrefix(line, "#") {
            continue
        }
        line = strings.TrimPrefix(line, "export ")
        // Simple KEY=VALUE parser; stops at first '='
        eq := strings.IndexByte(line, '=')
        if eq <= 0 {
            // ignore malformed lines silently
            continue
        }
        key := strings.TrimSpace(line[:eq])
        val := strings.TrimSpace(line[eq+1:])
        // strip optional surrounding quotes, then stray CR/whitespace inside them
        val = strings.Trim(val, " \t\r\n")
        if len(val) >= 2 {
            if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
                val = strings.Trim(val[1:len(val)-1], "\r\n")
            }
        }
        _ = os.Setenv(key, val)
    }
    return scanner.Err()
}
