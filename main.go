package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// 向运行中的服务发送 SIGHUP, 使其重新打开日志文件(配合 logrotate 使用)
func main() {
	pidPath := flag.String("pid", "data/turnaround.pid", "服务写出的PID文件")
	flag.Parse()

	content, err := os.ReadFile(*pidPath)
	if err != nil {
		log.Fatal("Failed to read pid file:", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		log.Fatal("Invalid pid file:", err)
	}

	if err := syscall.Kill(pid, syscall.SIGHUP); err != nil {
		log.Fatal("Failed to send SIGHUP:", err)
	}
	log.Printf("SIGHUP sent to %d", pid)
}
