// internal/cli/input.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter 讀取使用者輸入。stdin 為終端機時密碼以 term.ReadPassword 隱藏回顯；
// 其餘情況（管線、測試腳本）一律逐行讀取。
type prompter struct {
	r   *bufio.Reader
	out io.Writer
	fd  int // -1 代表非終端機
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{r: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// line 顯示提示並讀取一行（去除前後空白）。輸入結束時回傳 io.EOF。
func (p *prompter) line(prompt string) (string, error) {
	s, err := p.raw(prompt)
	return strings.TrimSpace(s), err
}

// secret 讀取密碼；只去除行尾換行，保留其餘字元。
func (p *prompter) secret(prompt string) (string, error) {
	if p.fd < 0 {
		return p.raw(prompt)
	}
	_, _ = fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// confirm 詢問 y/n，只有 y 或 yes 視為同意。
func (p *prompter) confirm(prompt string) (bool, error) {
	s, err := p.line(prompt + " (y/n): ")
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}

func (p *prompter) raw(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.out, prompt)
	s, err := p.r.ReadString('\n')
	if err != nil {
		// 最後一行沒有換行仍視為有效輸入
		if errors.Is(err, io.EOF) && s != "" {
			return strings.TrimRight(s, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}
