package sample

import "fmt"

// Server is a fixture with methods of varying complexity.
type Server struct {
	Host string
	Port int
}

func NewServer(host string, port int) *Server {
	return &Server{Host: host, Port: port}
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *Server) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("host required")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	return nil
}

func Classify(code int) string {
	switch {
	case code < 300:
		return "ok"
	case code < 400:
		return "redirect"
	case code < 500:
		return "client"
	default:
		return "server"
	}
}
