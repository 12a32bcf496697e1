package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ErrorResponses struct {
	Error []string `json:"error"`
}

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type WarningResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// switchEnvironment selects env, or the default environment when env is empty. Environments whose
// name contains "prod" need a confirmation unless force is set.
func switchEnvironment(env string, force bool, cm *config.Config, stdin io.ReadCloser) error {
	err := cm.SelectEnvironment(env)
	if err != nil {
		return err
	}

	name := cm.SelectedEnvironmentName
	if !force && strings.Contains(strings.ToLower(name), "prod") {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("You are provisioning the production environment '%s'. Are you sure you want to continue", name),
			IsConfirm: true,
			Stdin:     stdin,
		}

		if _, err := prompt.Run(); err != nil {
			return errOperationCancelled
		}
	}

	return nil
}

var errOperationCancelled = errors.New("the operation is cancelled")

func RecoverFromPanic() {
	if err := recover(); err != nil {
		log.Println("=======================================")
		log.Println("fivetran-provisioner encountered an unexpected error, please report the issue.")
		log.Println(err)
		log.Println("=======================================")
		b := bufio.NewScanner(bytes.NewBuffer(debug.Stack()))
		for b.Scan() {
			log.Println(b.Text())
		}
		os.Exit(1)
	}
}

func marshal[K ErrorResponse | ErrorResponses](m K) ([]byte, error) {
	js, marshalError := json.Marshal(m)
	if marshalError != nil {
		fmt.Println(marshalError)
		return []byte{}, marshalError
	}
	return js, nil
}

func printErrorJSON(err error) {
	errResponse := ErrorResponse{
		Error: errors.New("something went wrong").Error(),
	}
	if err != nil {
		errResponse.Error = err.Error()
	}
	js, err := marshal[ErrorResponse](errResponse)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(js))
}

func printErrors(errs []error, output string, message string) {
	if output == "json" {
		errorList := []string{}
		for _, v := range errs {
			errorList = append(errorList, v.Error())
		}

		js, err := marshal[ErrorResponses](ErrorResponses{
			Error: errorList,
		})
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(string(js))
	} else {
		errorPrinter.Printf("%s:\n", message)
		for _, err := range errs {
			errorPrinter.Printf("  - %v\n", err)
		}
	}
}

func printError(err error, output string, message string) {
	if output == "json" {
		printErrorJSON(err)
	} else {
		errorPrinter.Printf("%s: %v\n", message, err)
	}
}

// NewRunID returns PROVISIONER_RUN_ID when set, a random id otherwise.
func NewRunID() string {
	if runID := os.Getenv("PROVISIONER_RUN_ID"); runID != "" {
		return runID
	}
	return uuid.NewString()
}

func printSuccessForOutput(output string, message string) {
	if output == "json" {
		successResponse := SuccessResponse{
			Status:  "success",
			Message: message,
		}
		jsonData, err := json.Marshal(successResponse)
		if err != nil {
			fmt.Println("Error:", err.Error())
			return
		}
		fmt.Println(string(jsonData))
	} else {
		successPrinter.Printf("%s\n", message)
	}
}

func printWarningForOutput(output string, message string) {
	if output == "json" {
		warningResponse := WarningResponse{
			Status:  "warning",
			Message: message,
		}
		jsonData, err := json.Marshal(warningResponse)
		if err != nil {
			fmt.Println("Error:", err.Error())
			return
		}
		fmt.Println(string(jsonData))
	} else {
		warningPrinter.Printf("%s\n", message)
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "the output type, possible values are: plain, json",
		Value:   "plain",
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"config-file"},
		Usage:   "the path to the project configuration file",
		Value:   config.DefaultFileName,
	}
}

func environmentFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "environment",
		Aliases: []string{"env", "e"},
		Usage:   "the environment to use, defaults to default_environment of the config",
	}
}
